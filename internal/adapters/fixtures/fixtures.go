package fixtures

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
	"waste-dispatch-service/internal/domain"

	"github.com/go-playground/validator/v10"
)

type User struct {
	ID    int64       `json:"id" validate:"gt=0"`
	Login string      `json:"login" validate:"required"`
	Name  string      `json:"name"`
	Role  domain.Role `json:"role" validate:"oneof=admin driver kiosk"`
}

type Vehicle struct {
	ID          int64  `json:"id" validate:"gt=0"`
	PlateNumber string `json:"plate_number" validate:"required"`
	Capacity    int    `json:"capacity" validate:"gte=0"`
}

type ContainerSize struct {
	ID       int64  `json:"id" validate:"gt=0"`
	Code     string `json:"code" validate:"required"`
	Capacity int    `json:"capacity" validate:"gt=0"`
}

type Point struct {
	ID       int64    `json:"id" validate:"gt=0"`
	Address  string   `json:"address" validate:"required"`
	Lon      *float64 `json:"lon" validate:"omitempty,longitude"`
	Lat      *float64 `json:"lat" validate:"omitempty,latitude"`
	Capacity int      `json:"capacity" validate:"gte=0"`
	KioskID  *int64   `json:"kiosk_id"`
	AdminID  *int64   `json:"admin_id"`
}

type Order struct {
	ID              int64              `json:"id" validate:"gt=0"`
	PointID         int64              `json:"point_id" validate:"gt=0"`
	ContainerSizeID int64              `json:"container_size_id" validate:"gt=0"`
	Weight          *float64           `json:"weight" validate:"omitempty,gte=0"`
	Status          domain.OrderStatus `json:"status" validate:"omitempty,oneof=confirmed done cancelled"`
	CreatedAt       *time.Time         `json:"created_at"`
}

// Seed data shared by the PostgreSQL seeder and the in-memory store.
type Fixtures struct {
	Users          []User          `json:"users" validate:"dive"`
	Vehicles       []Vehicle       `json:"vehicles" validate:"dive"`
	ContainerSizes []ContainerSize `json:"container_sizes" validate:"dive"`
	Points         []Point         `json:"points" validate:"dive"`
	Orders         []Order         `json:"orders" validate:"dive"`
}

// Read and validate a fixtures file.
func Load(path string) (*Fixtures, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load fixtures: read %q: %w", path, err)
	}
	return Parse(bytes)
}

func Parse(data []byte) (*Fixtures, error) {
	var f Fixtures
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("load fixtures: parse json: %w", err)
	}

	for i := range f.Users {
		f.Users[i].Login = strings.TrimSpace(f.Users[i].Login)
	}
	for i := range f.Points {
		f.Points[i].Address = strings.TrimSpace(f.Points[i].Address)
	}
	for i := range f.Orders {
		if f.Orders[i].Status == "" {
			f.Orders[i].Status = domain.OrderConfirmed
		}
	}

	if err := validator.New().Struct(f); err != nil {
		return nil, fmt.Errorf("load fixtures: %w", err)
	}
	if err := f.checkReferences(); err != nil {
		return nil, fmt.Errorf("load fixtures: %w", err)
	}

	return &f, nil
}

func (f *Fixtures) checkReferences() error {
	points := make(map[int64]bool, len(f.Points))
	for _, p := range f.Points {
		points[p.ID] = true
	}
	sizes := make(map[int64]bool, len(f.ContainerSizes))
	for _, cs := range f.ContainerSizes {
		sizes[cs.ID] = true
	}

	for i, o := range f.Orders {
		if !points[o.PointID] {
			return fmt.Errorf("order at index %d: unknown point_id %d", i+1, o.PointID)
		}
		if !sizes[o.ContainerSizeID] {
			return fmt.Errorf("order at index %d: unknown container_size_id %d", i+1, o.ContainerSizeID)
		}
	}
	return nil
}

func (f *Fixtures) DomainUsers() []domain.User {
	out := make([]domain.User, 0, len(f.Users))
	for _, u := range f.Users {
		out = append(out, domain.User{ID: u.ID, Login: u.Login, Name: u.Name, Role: u.Role})
	}
	return out
}

func (f *Fixtures) DomainPoints() []domain.CollectionPoint {
	out := make([]domain.CollectionPoint, 0, len(f.Points))
	for _, p := range f.Points {
		cp := domain.CollectionPoint{
			ID:       p.ID,
			Address:  p.Address,
			Capacity: p.Capacity,
			KioskID:  p.KioskID,
			AdminID:  p.AdminID,
		}
		if p.Lon != nil && p.Lat != nil {
			cp.Location = &domain.Coordinates{Lon: *p.Lon, Lat: *p.Lat}
		}
		out = append(out, cp)
	}
	return out
}

// Resolve each order's container capacity from its container size.
func (f *Fixtures) DomainOrders(now time.Time) []domain.DisposalOrder {
	capacity := make(map[int64]int, len(f.ContainerSizes))
	for _, cs := range f.ContainerSizes {
		capacity[cs.ID] = cs.Capacity
	}

	out := make([]domain.DisposalOrder, 0, len(f.Orders))
	for _, o := range f.Orders {
		created := now
		if o.CreatedAt != nil {
			created = *o.CreatedAt
		}
		out = append(out, domain.DisposalOrder{
			ID:                o.ID,
			PointID:           o.PointID,
			ContainerCapacity: capacity[o.ContainerSizeID],
			Weight:            o.Weight,
			Status:            o.Status,
			CreatedAt:         created,
		})
	}
	return out
}
