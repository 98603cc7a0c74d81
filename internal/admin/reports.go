package admin

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Skotchmaster/localshop/internal/models"
	"github.com/Skotchmaster/localshop/internal/order"
	"github.com/Skotchmaster/localshop/internal/state"
)

// Product status filter values of the admin product table.
const (
	FilterAll      = "all"
	FilterActive   = "active"
	FilterInactive = "inactive"
)

// SearchProducts matches name, SKU, id and description, all products
// including inactive ones.
func (s *Service) SearchProducts(query, status string) []models.Product {
	q := strings.ToLower(strings.TrimSpace(query))
	out := []models.Product{}
	s.State.View(func(d *state.Data) {
		for i := range d.Products {
			p := &d.Products[i]
			if !matchesStatus(p, status) {
				continue
			}
			if q != "" &&
				!strings.Contains(strings.ToLower(p.Name), q) &&
				!strings.Contains(strings.ToLower(p.SKU), q) &&
				!strings.Contains(strconv.Itoa(p.ID), q) &&
				!strings.Contains(strings.ToLower(p.Description), q) {
				continue
			}
			out = append(out, p.Clone())
		}
	})
	return out
}

func matchesStatus(p *models.Product, status string) bool {
	switch status {
	case FilterActive:
		return p.IsActive()
	case FilterInactive:
		return !p.IsActive()
	}
	return true
}

// SearchOrders matches order id and customer name, newest first.
func (s *Service) SearchOrders(query, status string) []models.Order {
	q := strings.ToLower(strings.TrimSpace(query))
	out := []models.Order{}
	s.State.View(func(d *state.Data) {
		for i := range d.Orders {
			o := &d.Orders[i]
			if q != "" &&
				!strings.Contains(strings.ToLower(o.ID), q) &&
				!strings.Contains(strings.ToLower(o.CustomerName), q) {
				continue
			}
			out = append(out, o.Clone())
		}
	})
	out = order.FilterByStatus(out, status)
	order.SortNewestFirst(out)
	return out
}

// SearchCustomers matches name and email. Passwords never leave.
func (s *Service) SearchCustomers(query string) []models.User {
	q := strings.ToLower(strings.TrimSpace(query))
	out := []models.User{}
	s.State.View(func(d *state.Data) {
		for _, u := range d.Users {
			if q != "" &&
				!strings.Contains(strings.ToLower(u.Name), q) &&
				!strings.Contains(strings.ToLower(u.Email), q) {
				continue
			}
			out = append(out, u.Public())
		}
	})
	return out
}

type CustomerDetail struct {
	Customer   models.User    `json:"customer"`
	Orders     []models.Order `json:"orders"`
	OrderCount int            `json:"order_count"`
	TotalSpent float64        `json:"total_spent"`
}

// Customer gathers a customer's orders. Cancelled orders are listed but not
// counted as spent.
func (s *Service) Customer(id int64) (CustomerDetail, error) {
	var (
		out   CustomerDetail
		found bool
	)
	s.State.View(func(d *state.Data) {
		u := d.FindUser(id)
		if u == nil {
			return
		}
		found = true
		out.Customer = u.Public()
		out.Orders = []models.Order{}
		for i := range d.Orders {
			o := &d.Orders[i]
			if o.CustomerID != id {
				continue
			}
			out.Orders = append(out.Orders, o.Clone())
			if o.Status != models.OrderCancelled {
				out.TotalSpent += o.Total
			}
		}
	})
	if !found {
		return CustomerDetail{}, fmt.Errorf("customer %d: %w", id, ErrNotFound)
	}
	order.SortNewestFirst(out.Orders)
	out.OrderCount = len(out.Orders)
	return out, nil
}

type Statistics struct {
	TotalProducts  int     `json:"total_products"`
	ActiveProducts int     `json:"active_products"`
	TotalOrders    int     `json:"total_orders"`
	Revenue        float64 `json:"revenue"`
}

// Statistics counts every order but leaves cancelled ones out of revenue.
func (s *Service) Statistics() Statistics {
	var st Statistics
	s.State.View(func(d *state.Data) {
		st.TotalProducts = len(d.Products)
		for i := range d.Products {
			if d.Products[i].IsActive() {
				st.ActiveProducts++
			}
		}
		st.TotalOrders = len(d.Orders)
		for i := range d.Orders {
			if d.Orders[i].Status != models.OrderCancelled {
				st.Revenue += d.Orders[i].Total
			}
		}
	})
	return st
}

type Snapshot struct {
	ExportedAt string           `json:"exportedAt"`
	Products   []models.Product `json:"products"`
	Orders     []models.Order   `json:"orders"`
	Users      []models.User    `json:"users"`
}

// ExportSnapshot copies products, orders and users. Credentials are left out.
func (s *Service) ExportSnapshot() Snapshot {
	d := s.State.Snapshot()
	users := make([]models.User, len(d.Users))
	for i, u := range d.Users {
		users[i] = u.Public()
	}
	return Snapshot{
		ExportedAt: models.FormatTimestamp(s.State.Now()),
		Products:   d.Products,
		Orders:     d.Orders,
		Users:      users,
	}
}

func ExportFileName(t time.Time) string {
	return "online-shopping-data-" + models.FormatDate(t) + ".json"
}
