package cli

import (
	"context"
	"fmt"
	"log"
	"strconv"
)

// Activities lists recent activities: activities [limit].
func (a *App) Activities(ctx context.Context, args []string) error {
	limit := 0
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			fmt.Fprintln(a.out, "Usage: activities [limit]")
			return nil
		}
		limit = n
	}

	activities, err := a.activities.List(ctx, limit)
	if err != nil {
		log.Println(err.Error())
		return err
	}

	if len(activities) == 0 {
		fmt.Fprintln(a.out, "No activities")
		return nil
	}
	for _, act := range activities {
		fmt.Fprintf(a.out, "%s  %s  %s  %s\n",
			act.StartTime.Format("2006-01-02 15:04"), act.ActivityType, act.Duration, act.ID)
	}
	return nil
}

// Metrics lists recent metrics: metrics [type].
func (a *App) Metrics(ctx context.Context, args []string) error {
	metricType := ""
	if len(args) > 0 {
		metricType = args[0]
	}

	metrics, err := a.metrics.List(ctx, metricType, 0)
	if err != nil {
		log.Println(err.Error())
		return err
	}

	if len(metrics) == 0 {
		fmt.Fprintln(a.out, "No metrics")
		return nil
	}
	for _, m := range metrics {
		fmt.Fprintf(a.out, "%s  %s  %.1f %s\n",
			m.Timestamp.Format("2006-01-02 15:04:05"), m.MetricType, m.Value, m.Unit)
	}
	return nil
}
