package report

import (
	"errors"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"github.com/vtk-it/declaro/internal/config"
	"go.uber.org/zap"
)

// Point is a position on the template page, in PDF points from the
// bottom-left corner.
type Point struct {
	X float64 `mapstructure:"x"`
	Y float64 `mapstructure:"y"`
}

// Layout pins every stamped field to the declaration template's print
// layout. The coordinates are design constants tied to one template
// revision, kept in config so a reprinted template does not need a release.
type Layout struct {
	FontName string  `mapstructure:"fontName"`
	FontSize float64 `mapstructure:"fontSize"`

	YearTag      Point `mapstructure:"yearTag"`
	Activity     Point `mapstructure:"activity"`
	Desc         Point `mapstructure:"desc"`
	Post         Point `mapstructure:"post"`
	Name         Point `mapstructure:"name"`
	Date         Point `mapstructure:"date"`
	MarkVTK      Point `mapstructure:"markVtk"`
	MarkPersonal Point `mapstructure:"markPersonal"`
	IBAN         Point `mapstructure:"iban"`

	// Receipt images scale to fit BoxWidth x BoxHeight and center within
	// RegionWidth x RegionHeight.
	BoxWidth     float64 `mapstructure:"boxWidth"`
	BoxHeight    float64 `mapstructure:"boxHeight"`
	RegionWidth  float64 `mapstructure:"regionWidth"`
	RegionHeight float64 `mapstructure:"regionHeight"`
	RotatedTop   float64 `mapstructure:"rotatedTop"`
}

func DefaultLayout() Layout {
	return Layout{
		FontName: "Helvetica",
		FontSize: 13,

		YearTag:      Point{X: 505, Y: 805},
		Activity:     Point{X: 355, Y: 805},
		Desc:         Point{X: 195, Y: 786},
		Post:         Point{X: 150, Y: 805},
		Name:         Point{X: 150, Y: 768},
		Date:         Point{X: 162, Y: 750},
		MarkVTK:      Point{X: 232, Y: 732},
		MarkPersonal: Point{X: 336, Y: 732},
		IBAN:         Point{X: 155, Y: 715},

		BoxWidth:     580,
		BoxHeight:    570,
		RegionWidth:  590,
		RegionHeight: 600,
		RotatedTop:   590,
	}
}

// LayoutHolder serves the active layout and hot-reloads it when the layout
// file changes on disk. Reads are lock-free.
type LayoutHolder struct {
	current atomic.Value // holds Layout
}

func NewLayoutHolder(cfg config.Config, log *zap.Logger) (*LayoutHolder, error) {
	log = log.Named("report.layout")

	v := viper.New()
	v.SetConfigName("layout")
	v.SetConfigType("yml")
	if cfg.ReportLayoutDir != "" {
		v.AddConfigPath(cfg.ReportLayoutDir)
	}
	v.AddConfigPath(".")

	layout := DefaultLayout()
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	} else {
		if err := v.UnmarshalKey("layout", &layout); err != nil {
			return nil, err
		}
		if err := validateLayout(layout); err != nil {
			return nil, err
		}
	}

	holder := &LayoutHolder{}
	holder.current.Store(layout)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated := DefaultLayout()
		if err := v.UnmarshalKey("layout", &updated); err != nil {
			log.Warn("layout reload failed", zap.Error(err))
			return
		}
		if err := validateLayout(updated); err != nil {
			log.Warn("invalid layout ignored", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("layout reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

func (h *LayoutHolder) Get() Layout {
	return h.current.Load().(Layout)
}

func validateLayout(l Layout) error {
	if l.FontName == "" || l.FontSize <= 0 {
		return errors.New("layout font must be set")
	}
	if l.BoxWidth <= 0 || l.BoxHeight <= 0 || l.RegionWidth <= 0 || l.RegionHeight <= 0 {
		return errors.New("layout bounding box must be positive")
	}
	return nil
}
