package httpapi

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/i474232898/season-snow-board/internal/snow"
)

var validate = validator.New()

// NewApp builds the Fiber app with the shared error handler.
func NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "season-snow-board",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		// a triggered run can take a while
		WriteTimeout: 3 * time.Minute,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "season-snow-board",
		})
	})
	return app
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *snow.Service) {
	v1 := app.Group("/api/v1")

	v1.Get("/totals", func(c *fiber.Ctx) error {
		totals, err := service.Totals(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load totals")
		}

		resorts := make([]string, 0, len(service.Resorts()))
		for _, r := range service.Resorts() {
			resorts = append(resorts, r.Name)
		}
		return c.JSON(fiber.Map{
			"resorts": resorts,
			"totals":  totals,
		})
	})

	v1.Get("/totals/:resort", func(c *fiber.Ctx) error {
		q := resortQuery{Resort: strings.ToUpper(c.Params("resort"))}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if !configured(service, q.Resort) {
			return fiber.NewError(fiber.StatusNotFound, "resort is not on the board")
		}

		totals, err := service.Totals(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load totals")
		}
		return c.JSON(fiber.Map{
			"resort": q.Resort,
			"inches": totals[q.Resort],
		})
	})

	v1.Get("/board", func(c *fiber.Ctx) error {
		report, ok := service.LastReport()
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "no board rendered yet")
		}
		return c.JSON(newRunView(report))
	})

	v1.Post("/run", func(c *fiber.Ctx) error {
		report, err := service.TryRun(c.UserContext())
		if errors.Is(err, snow.ErrRunInProgress) {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusBadGateway, err.Error())
		}
		return c.JSON(newRunView(report))
	})
}

// resortQuery holds the path parameter for a single resort.
type resortQuery struct {
	Resort string `validate:"required,alphanum,max=22"`
}

func configured(service *snow.Service, name string) bool {
	for _, r := range service.Resorts() {
		if r.Name == name {
			return true
		}
	}
	return false
}

type resultView struct {
	Resort string           `json:"resort"`
	OK     bool             `json:"ok"`
	Inches float64          `json:"inches"`
	Kind   snow.FailureKind `json:"kind"`
	Error  string           `json:"error,omitempty"`
}

type runView struct {
	RunID     string       `json:"runId"`
	StartedAt time.Time    `json:"startedAt"`
	Published bool         `json:"published"`
	Board     []string     `json:"board"`
	Totals    snow.Totals  `json:"totals"`
	Results   []resultView `json:"results"`
}

func newRunView(r snow.RunReport) runView {
	v := runView{
		RunID:     r.RunID,
		StartedAt: r.StartedAt,
		Published: r.Published,
		Board:     r.Board[:],
		Totals:    r.Totals,
		Results:   make([]resultView, 0, len(r.Results)),
	}
	for _, res := range r.Results {
		rv := resultView{Resort: res.Resort, OK: res.OK(), Inches: res.Inches, Kind: res.Kind}
		if res.Err != nil {
			rv.Error = res.Err.Error()
		}
		v.Results = append(v.Results, rv)
	}
	return v
}
