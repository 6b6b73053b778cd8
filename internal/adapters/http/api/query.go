package api

import (
	"net/url"

	"github.com/fieldops/techrank/internal/domain/filter"
)

func technicianFilter(q url.Values) filter.TechnicianFilter {
	return filter.TechnicianFilter{
		Region: q.Get("region"),
		Role:   q.Get("role"),
		Nom:    q.Get("nom"),
		Rom:    q.Get("rom"),
	}
}

func jobFilter(q url.Values) filter.JobFilter {
	return filter.JobFilter{
		TechnicianID: q.Get("technicianId"),
		Region:       q.Get("region"),
		JobType:      q.Get("jobType"),
		DateFrom:     q.Get("dateFrom"),
		DateTo:       q.Get("dateTo"),
	}
}
