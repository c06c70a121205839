package api

import (
	"fmt"
	"strconv"
	"strings"

	domain "github.com/example/task-marketplace/domain/task"
	"github.com/gofiber/fiber/v2"
)

// taskQuery is a parsed GET /tasks query string.
type taskQuery struct {
	filter domain.Filter
	page   int
	limit  int
}

// parseTaskQuery reads search filters from the query string. Empty
// parameters are ignored; malformed ones are rejected.
func parseTaskQuery(c *fiber.Ctx) (taskQuery, error) {
	var q taskQuery

	q.filter.Query = optionalString(c.Query("query"))
	q.filter.CategoryID = optionalString(c.Query("categoryId"))
	q.filter.ClientID = optionalString(c.Query("clientId"))
	q.filter.TaskerID = optionalString(c.Query("taskerId"))
	q.filter.Location = optionalString(c.Query("location"))

	if v := c.Query("status"); v != "" {
		status := domain.Status(strings.ToUpper(v))
		if !status.Valid() {
			return q, fmt.Errorf("status %q is not a valid task status", v)
		}
		q.filter.Status = &status
	}

	if v := c.Query("priority"); v != "" {
		priority := domain.Priority(strings.ToUpper(v))
		if !priority.Valid() {
			return q, fmt.Errorf("priority %q is not a valid priority", v)
		}
		q.filter.Priority = &priority
	}

	var err error
	if q.filter.MinPrice, err = moneyParam(c, "minPrice"); err != nil {
		return q, err
	}
	if q.filter.MaxPrice, err = moneyParam(c, "maxPrice"); err != nil {
		return q, err
	}

	if v := c.Query("isUrgent"); v != "" {
		urgent, err := strconv.ParseBool(v)
		if err != nil {
			return q, fmt.Errorf("isUrgent must be true or false")
		}
		q.filter.IsUrgent = &urgent
	}

	if q.page, err = intParam(c, "page"); err != nil {
		return q, err
	}
	if q.limit, err = intParam(c, "limit"); err != nil {
		return q, err
	}
	return q, nil
}

// optionalString copies v out of the request buffer, or returns nil when
// empty.
func optionalString(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	s := strings.Clone(v)
	return &s
}

func moneyParam(c *fiber.Ctx, key string) (*domain.Money, error) {
	v := c.Query(key)
	if v == "" {
		return nil, nil
	}
	ghs, err := strconv.ParseFloat(v, 64)
	if err != nil || ghs < 0 {
		return nil, fmt.Errorf("%s must be a non-negative number", key)
	}
	m := domain.MoneyFromGHS(ghs)
	return &m, nil
}

// intParam returns 0 for an absent parameter so the service applies its
// default.
func intParam(c *fiber.Ctx, key string) (int, error) {
	v := c.Query(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%s must be a positive integer", key)
	}
	return n, nil
}
