package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

// Vehicle mirrors a row of the vehicles table. CostPerDay is in whole rupees.
type Vehicle struct {
	ID           pgtype.UUID
	Name         string
	Slug         string
	Brand        string
	Model        string
	VehicleType  string
	Seats        int32
	Transmission pgtype.Text
	FuelType     pgtype.Text
	CostPerDay   int64
	ImageURL     pgtype.Text
	Description  pgtype.Text
	Available    bool
	CreatedAt    pgtype.Timestamptz
	UpdatedAt    pgtype.Timestamptz
}

// ListVehiclesParams captures catalog filters.
type ListVehiclesParams struct {
	VehicleType string
	Brand       string
	Search      string
	Limit       int32
	Offset      int32
}

const vehicleColumns = `id, name, slug, brand, model, vehicle_type, seats, transmission, fuel_type,
cost_per_day, image_url, description, available, created_at, updated_at`

// ListVehicles returns available vehicles matching the provided filters.
func (s *Store) ListVehicles(ctx context.Context, arg ListVehiclesParams) ([]Vehicle, error) {
	where, args := vehicleFilter(arg)
	args = append(args, arg.Limit, arg.Offset)
	sql := fmt.Sprintf(`SELECT %s FROM vehicles %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		vehicleColumns, where, len(args)-1, len(args))
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// CountVehicles returns the number of vehicles matching the provided filters.
func (s *Store) CountVehicles(ctx context.Context, arg ListVehiclesParams) (int64, error) {
	where, args := vehicleFilter(arg)
	var total int64
	err := s.pool.QueryRow(ctx, fmt.Sprintf(`SELECT count(*) FROM vehicles %s`, where), args...).Scan(&total)
	return total, err
}

func vehicleFilter(arg ListVehiclesParams) (string, []any) {
	clauses := []string{"available = true"}
	var args []any
	if t := strings.TrimSpace(arg.VehicleType); t != "" {
		args = append(args, t)
		clauses = append(clauses, fmt.Sprintf("vehicle_type = $%d", len(args)))
	}
	if b := strings.TrimSpace(arg.Brand); b != "" {
		args = append(args, b)
		clauses = append(clauses, fmt.Sprintf("brand ILIKE $%d", len(args)))
	}
	if q := strings.TrimSpace(arg.Search); q != "" {
		args = append(args, "%"+q+"%")
		clauses = append(clauses, fmt.Sprintf("(name ILIKE $%d OR model ILIKE $%d)", len(args), len(args)))
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

const getVehicleBySlugSQL = `SELECT ` + vehicleColumns + ` FROM vehicles WHERE slug = $1`

// GetVehicleBySlug fetches a vehicle by its URL slug.
func (s *Store) GetVehicleBySlug(ctx context.Context, slug string) (Vehicle, error) {
	return scanVehicle(s.pool.QueryRow(ctx, getVehicleBySlugSQL, slug))
}

const getVehicleByIDSQL = `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = $1`

// GetVehicleByID fetches a vehicle by primary key.
func (s *Store) GetVehicleByID(ctx context.Context, id pgtype.UUID) (Vehicle, error) {
	return scanVehicle(s.pool.QueryRow(ctx, getVehicleByIDSQL, id))
}

// CreateVehicleParams captures fields for adding a vehicle to the fleet.
type CreateVehicleParams struct {
	Name         string
	Slug         string
	Brand        string
	Model        string
	VehicleType  string
	Seats        int32
	Transmission string
	FuelType     string
	CostPerDay   int64
	ImageURL     string
	Description  string
}

const createVehicleSQL = `
INSERT INTO vehicles (name, slug, brand, model, vehicle_type, seats, transmission, fuel_type,
	cost_per_day, image_url, description)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING ` + vehicleColumns

// CreateVehicle inserts a new vehicle row.
func (s *Store) CreateVehicle(ctx context.Context, arg CreateVehicleParams) (Vehicle, error) {
	row := s.pool.QueryRow(ctx, createVehicleSQL,
		arg.Name, arg.Slug, arg.Brand, arg.Model, arg.VehicleType, arg.Seats,
		pgText(arg.Transmission), pgText(arg.FuelType), arg.CostPerDay,
		pgText(arg.ImageURL), pgText(arg.Description))
	return scanVehicle(row)
}

func scanVehicle(row rowScanner) (Vehicle, error) {
	var v Vehicle
	err := row.Scan(&v.ID, &v.Name, &v.Slug, &v.Brand, &v.Model, &v.VehicleType, &v.Seats,
		&v.Transmission, &v.FuelType, &v.CostPerDay, &v.ImageURL, &v.Description,
		&v.Available, &v.CreatedAt, &v.UpdatedAt)
	return v, err
}
