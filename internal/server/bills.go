package server

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	billdomain "github.com/vtk-it/declaro/internal/bill/domain"
	"github.com/vtk-it/declaro/internal/bill/query"
)

type BillFields struct {
	Name          string `form:"name" json:"name"`
	Activity      string `form:"activity" json:"activity"`
	Desc          string `form:"desc" json:"desc"`
	Post          string `form:"post" json:"post"`
	Date          string `form:"date" json:"date"`
	Amount        string `form:"amount" json:"amount"`
	PaymentMethod string `form:"payment_method" json:"payment_method"`
	IBAN          string `form:"iban" json:"iban"`
}

func (s *Server) CreateBill(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var fields BillFields
	if err := c.ShouldBind(&fields); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	name, data, err := readReceiptUpload(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	req, err := fields.toCreateRequest(actor)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	req.ReceiptName = name
	req.ReceiptBytes = data

	bill, err := s.billSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, bill)
}

func (s *Server) ListOwnBills(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	resp, err := s.billSvc.ListOwn(c.Request.Context(), actor)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.respondBillPage(c, resp.Bills)
}

func (s *Server) ListAllBills(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	resp, err := s.billSvc.ListScoped(c.Request.Context(), actor)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.respondBillPage(c, resp.Bills)
}

// respondBillPage runs the filter engine over an already privilege-scoped
// collection and writes one page of it.
func (s *Server) respondBillPage(c *gin.Context, bills []billdomain.Bill) {
	engine := billFilterEngine(c)
	c.JSON(http.StatusOK, engine.Run(bills))
}

func (s *Server) GetBillByID(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	bill, err := s.billSvc.GetByID(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, bill)
}

func (s *Server) UpdateBill(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var fields BillFields
	if err := c.ShouldBindJSON(&fields); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	createReq, err := fields.toCreateRequest(actor)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	bill, err := s.billSvc.Update(c.Request.Context(), billdomain.UpdateBillRequest{
		Actor:         actor,
		ID:            c.Param("id"),
		Name:          createReq.Name,
		Activity:      createReq.Activity,
		Desc:          createReq.Desc,
		Post:          createReq.Post,
		Date:          createReq.Date,
		Amount:        createReq.Amount,
		PaymentMethod: createReq.PaymentMethod,
		IBAN:          createReq.IBAN,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.reports.Invalidate(bill.ID.String())
	c.JSON(http.StatusOK, bill)
}

func (s *Server) ReplaceReceipt(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	name, data, err := readReceiptUpload(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	bill, err := s.billSvc.ReplaceReceipt(c.Request.Context(), billdomain.ReplaceReceiptRequest{
		Actor:        actor,
		ID:           c.Param("id"),
		ReceiptName:  name,
		ReceiptBytes: data,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.reports.Invalidate(bill.ID.String())
	c.JSON(http.StatusOK, bill)
}

func (s *Server) DeleteBill(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	id := c.Param("id")
	if err := s.billSvc.Delete(c.Request.Context(), actor, id); err != nil {
		AbortWithError(c, err)
		return
	}
	s.reports.Invalidate(id)
	c.Status(http.StatusNoContent)
}

type SetPaidRequest struct {
	Paid bool `json:"paid"`
}

type SetBookedRequest struct {
	Booked bool `json:"booked"`
}

func (s *Server) SetBillPaid(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req SetPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	bill, err := s.billSvc.SetPaid(c.Request.Context(), actor, c.Param("id"), req.Paid)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, bill)
}

func (s *Server) SetBillBooked(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req SetBookedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	bill, err := s.billSvc.SetBooked(c.Request.Context(), actor, c.Param("id"), req.Booked)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, bill)
}

func (s *Server) ListPosts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"posts":           billdomain.Posts,
		"payment_methods": []string{billdomain.PaymentMethodVTK, billdomain.PaymentMethodPersonal},
	})
}

func (f BillFields) toCreateRequest(actor billdomain.Actor) (billdomain.CreateBillRequest, error) {
	amount, ok := query.ParseAmount(f.Amount)
	if !ok {
		return billdomain.CreateBillRequest{}, billdomain.ErrInvalidAmount
	}

	var date *time.Time
	if f.Date != "" {
		parsed, ok := query.ParseDate(f.Date)
		if !ok {
			return billdomain.CreateBillRequest{}, newValidationError("date", "invalid_date", "invalid value")
		}
		date = &parsed
	}

	return billdomain.CreateBillRequest{
		Actor:         actor,
		Name:          f.Name,
		Activity:      f.Activity,
		Desc:          f.Desc,
		Post:          f.Post,
		Date:          date,
		Amount:        query.MinorUnits(amount),
		PaymentMethod: f.PaymentMethod,
		IBAN:          f.IBAN,
	}, nil
}

func readReceiptUpload(c *gin.Context) (string, []byte, error) {
	header, err := c.FormFile("receipt")
	if err != nil {
		return "", nil, billdomain.ErrMissingReceipt
	}

	file, err := header.Open()
	if err != nil {
		return "", nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, err
	}
	return header.Filename, data, nil
}
