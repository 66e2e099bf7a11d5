package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	domaincatalog "maintrack/internal/domain/catalog"
	"maintrack/internal/ports"
)

type machineResponse struct {
	ID             string              `json:"id"`
	Name           string              `json:"name"`
	DisplayName    string              `json:"display_name"`
	Model          string              `json:"model,omitempty"`
	Manufacturer   string              `json:"manufacturer,omitempty"`
	SerialNumber   string              `json:"serial_number,omitempty"`
	Location       string              `json:"location,omitempty"`
	Specifications domaincatalog.Specs `json:"specifications"`
	IsActive       bool                `json:"is_active"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

type technicianResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Specialty string    `json:"specialty,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type partResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	PartNumber  string    `json:"part_number,omitempty"`
	Description string    `json:"description,omitempty"`
	Quantity    int       `json:"quantity"`
	MinQuantity int       `json:"min_quantity"`
	LowStock    bool      `json:"low_stock"`
	Location    string    `json:"location,omitempty"`
	MachineID   *string   `json:"machine_id"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (h *Handler) listMachines(w http.ResponseWriter, r *http.Request) {
	machines, err := h.catalog.ListMachines(r.Context(), catalogFilter(r))
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "could not list machines")
		return
	}
	out := make([]machineResponse, 0, len(machines))
	for _, machine := range machines {
		out = append(out, machineResponse{
			ID:             machine.ID,
			Name:           machine.Name,
			DisplayName:    machine.DisplayName(),
			Model:          machine.Model,
			Manufacturer:   machine.Manufacturer,
			SerialNumber:   machine.SerialNumber,
			Location:       machine.Location,
			Specifications: machine.Specifications,
			IsActive:       machine.IsActive,
			CreatedAt:      machine.CreatedAt,
			UpdatedAt:      machine.UpdatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) listTechnicians(w http.ResponseWriter, r *http.Request) {
	technicians, err := h.catalog.ListTechnicians(r.Context(), catalogFilter(r))
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "could not list technicians")
		return
	}
	out := make([]technicianResponse, 0, len(technicians))
	for _, technician := range technicians {
		out = append(out, technicianResponse{
			ID:        technician.ID,
			Name:      technician.Name,
			Email:     technician.Email,
			Phone:     technician.Phone,
			Specialty: technician.Specialty,
			IsActive:  technician.IsActive,
			CreatedAt: technician.CreatedAt,
			UpdatedAt: technician.UpdatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) listParts(w http.ResponseWriter, r *http.Request) {
	parts, err := h.catalog.ListParts(r.Context(), catalogFilter(r))
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "could not list parts")
		return
	}
	out := make([]partResponse, 0, len(parts))
	for _, part := range parts {
		out = append(out, partResponse{
			ID:          part.ID,
			Name:        part.Name,
			PartNumber:  part.PartNumber,
			Description: part.Description,
			Quantity:    part.Quantity,
			MinQuantity: part.MinQuantity,
			LowStock:    part.LowStock(),
			Location:    part.Location,
			MachineID:   part.MachineID,
			IsActive:    part.IsActive,
			CreatedAt:   part.CreatedAt,
			UpdatedAt:   part.UpdatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func catalogFilter(r *http.Request) ports.CatalogFilter {
	active, _ := strconv.ParseBool(strings.TrimSpace(r.URL.Query().Get("active")))
	return ports.CatalogFilter{ActiveOnly: active}
}
