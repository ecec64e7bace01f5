package vehicle_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/kiraya-np/backend-kiraya/internal/store"
	"github.com/kiraya-np/backend-kiraya/internal/vehicle"
)

type fakeFleetWriter struct {
	created []store.CreateVehicleParams
	slugs   map[string]bool
}

func (f *fakeFleetWriter) CreateVehicle(_ context.Context, arg store.CreateVehicleParams) (store.Vehicle, error) {
	if f.slugs == nil {
		f.slugs = map[string]bool{}
	}
	if f.slugs[arg.Slug] {
		return store.Vehicle{}, &pgconn.PgError{Code: "23505"}
	}
	f.slugs[arg.Slug] = true
	f.created = append(f.created, arg)
	id, _ := store.ToUUID(uuid.NewString())
	return store.Vehicle{
		ID:          id,
		Name:        arg.Name,
		Slug:        arg.Slug,
		Brand:       arg.Brand,
		Model:       arg.Model,
		VehicleType: arg.VehicleType,
		Seats:       arg.Seats,
		CostPerDay:  arg.CostPerDay,
		Available:   true,
	}, nil
}

func postVehicle(h *vehicle.AdminHandler, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	_ = json.NewEncoder(&buf).Encode(body)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/vehicles", &buf)
	rec := httptest.NewRecorder()
	h.Create(rec, req)
	return rec
}

func validVehicleInput() vehicle.CreateVehicleInput {
	return vehicle.CreateVehicleInput{
		Name:        "Honda Dio",
		Slug:        "Honda-Dio",
		Brand:       "Honda",
		Model:       "Dio",
		VehicleType: "scooter",
		Seats:       2,
		CostPerDay:  1000,
	}
}

func TestAdminCreateVehicle(t *testing.T) {
	writer := &fakeFleetWriter{}
	h := &vehicle.AdminHandler{Q: writer}

	rec := postVehicle(h, validVehicleInput())
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, writer.created, 1)
	require.Equal(t, "honda-dio", writer.created[0].Slug, "slug should be normalised")

	var resp struct {
		Data vehicle.Detail `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "honda-dio", resp.Data.Slug)
	require.True(t, resp.Data.Available)
}

func TestAdminCreateVehicleValidation(t *testing.T) {
	h := &vehicle.AdminHandler{Q: &fakeFleetWriter{}}

	missingName := validVehicleInput()
	missingName.Name = ""
	badType := validVehicleInput()
	badType.VehicleType = "tractor"
	zeroCost := validVehicleInput()
	zeroCost.CostPerDay = 0

	for _, in := range []vehicle.CreateVehicleInput{missingName, badType, zeroCost} {
		rec := postVehicle(h, in)
		require.Equal(t, http.StatusBadRequest, rec.Code, "input %+v", in)
	}
}

func TestAdminCreateVehicleDuplicateSlug(t *testing.T) {
	h := &vehicle.AdminHandler{Q: &fakeFleetWriter{}}

	rec := postVehicle(h, validVehicleInput())
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postVehicle(h, validVehicleInput())
	require.Equal(t, http.StatusConflict, rec.Code)

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "SLUG_ALREADY_USED", body.Error.Code)
}
