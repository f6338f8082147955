package http

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/bryankimani/todo-list/internal/tasks"
)

func (s *Server) handleProgress(c echo.Context) error {
	report, err := s.tasks.Progress(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, report)
}

// progressCollector exposes item counts computed at scrape time.
type progressCollector struct {
	tasks  tasks.Service
	logger *zap.Logger

	itemsTotal     *prometheus.Desc
	itemsCompleted *prometheus.Desc
	listPercent    *prometheus.Desc
}

func newProgressCollector(svc tasks.Service, logger *zap.Logger) *progressCollector {
	return &progressCollector{
		tasks:  svc,
		logger: logger,
		itemsTotal: prometheus.NewDesc("todo_items_total",
			"Number of stored items.", nil, nil),
		itemsCompleted: prometheus.NewDesc("todo_items_completed",
			"Number of completed items.", nil, nil),
		listPercent: prometheus.NewDesc("todo_list_completion_percent",
			"Completion percentage per list.", []string{"list_id", "list"}, nil),
	}
}

// Describe implements prometheus.Collector.
func (p *progressCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- p.itemsTotal
	ch <- p.itemsCompleted
	ch <- p.listPercent
}

// Collect implements prometheus.Collector.
func (p *progressCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	report, err := p.tasks.Progress(ctx)
	if err != nil {
		p.logger.Warn("failed to collect progress metrics", zap.Error(err))
		return
	}

	ch <- prometheus.MustNewConstMetric(p.itemsTotal, prometheus.GaugeValue, float64(report.Overall.Total))
	ch <- prometheus.MustNewConstMetric(p.itemsCompleted, prometheus.GaugeValue, float64(report.Overall.Completed))
	for _, l := range report.Lists {
		ch <- prometheus.MustNewConstMetric(p.listPercent, prometheus.GaugeValue, float64(l.Percent), l.ListID, l.Name)
	}
}
