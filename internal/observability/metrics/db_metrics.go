package metrics

import (
	"database/sql"
	"log"

	"github.com/prometheus/client_golang/prometheus"
)

func registerDBMetrics(db *sql.DB, logger *log.Logger) {
	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "persons",
			Help: "Registered meal recipients",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM persons")
		},
	))

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "orders_current_month",
			Help: "Meal order records in the current month",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM meal_orders WHERE order_date >= date_trunc('month', CURRENT_DATE)")
		},
	))
}

func queryCount(db *sql.DB, logger *log.Logger, query string) float64 {
	if db == nil {
		return 0
	}
	var count int64
	if err := db.QueryRow(query).Scan(&count); err != nil {
		if logger != nil {
			logger.Printf("metrics query failed: %v", err)
		}
		return 0
	}
	if count < 0 {
		return 0
	}
	return float64(count)
}
