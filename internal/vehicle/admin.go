package vehicle

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	validator "github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kiraya-np/backend-kiraya/internal/common"
	"github.com/kiraya-np/backend-kiraya/internal/store"
)

var validate = validator.New()

type fleetWriter interface {
	CreateVehicle(ctx context.Context, arg store.CreateVehicleParams) (store.Vehicle, error)
}

// AdminHandler exposes fleet management endpoints. Routes mounting it must
// enforce the admin role.
type AdminHandler struct {
	Q fleetWriter
}

// CreateVehicleInput is the admin payload for adding a vehicle to the fleet.
type CreateVehicleInput struct {
	Name         string `json:"name" validate:"required"`
	Slug         string `json:"slug" validate:"required"`
	Brand        string `json:"brand" validate:"required"`
	Model        string `json:"model" validate:"required"`
	VehicleType  string `json:"vehicleType" validate:"required,oneof=bike scooter car suv van"`
	Seats        int32  `json:"seats" validate:"required,min=1,max=20"`
	Transmission string `json:"transmission" validate:"omitempty,oneof=manual automatic"`
	FuelType     string `json:"fuelType"`
	CostPerDay   int64  `json:"costPerDay" validate:"required,min=1"`
	ImageURL     string `json:"imageUrl" validate:"omitempty,url"`
	Description  string `json:"description"`
}

// Create handles POST /api/v1/admin/vehicles.
func (h *AdminHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Q == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "fleet store not configured", nil)
		return
	}
	var in CreateVehicleInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request payload", nil)
		return
	}
	in.Slug = strings.ToLower(strings.TrimSpace(in.Slug))
	if err := validate.Struct(in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid vehicle payload", err.Error())
		return
	}

	created, err := h.Q.CreateVehicle(r.Context(), store.CreateVehicleParams{
		Name:         in.Name,
		Slug:         in.Slug,
		Brand:        in.Brand,
		Model:        in.Model,
		VehicleType:  in.VehicleType,
		Seats:        in.Seats,
		Transmission: in.Transmission,
		FuelType:     in.FuelType,
		CostPerDay:   in.CostPerDay,
		ImageURL:     in.ImageURL,
		Description:  in.Description,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			common.JSONError(w, http.StatusConflict, "SLUG_ALREADY_USED", "a vehicle with this slug already exists", nil)
			return
		}
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": toDetail(created)})
}
