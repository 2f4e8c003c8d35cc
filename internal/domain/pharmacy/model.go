package pharmacy

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Drug struct {
	ID            uuid.UUID `db:"id" json:"id"`
	Name          string    `db:"name" json:"name" validate:"required,max=150"`
	GenericName   *string   `db:"generic_name" json:"generic_name,omitempty"`
	Form          *string   `db:"form" json:"form,omitempty"`
	Strength      *string   `db:"strength" json:"strength,omitempty"`
	UnitPrice     float64   `db:"unit_price" json:"unit_price" validate:"gte=0"`
	StockQuantity int       `db:"stock_quantity" json:"stock_quantity" validate:"gte=0"`
	ReorderLevel  int       `db:"reorder_level" json:"reorder_level" validate:"gte=0"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// LowStock reports whether the drug is at or below its reorder level.
func (d *Drug) LowStock() bool {
	return d.StockQuantity <= d.ReorderLevel
}

func (d *Drug) matches(params map[string]string) bool {
	if q := strings.ToLower(params["q"]); q != "" {
		hit := strings.Contains(strings.ToLower(d.Name), q)
		if !hit && d.GenericName != nil {
			hit = strings.Contains(strings.ToLower(*d.GenericName), q)
		}
		if !hit {
			return false
		}
	}
	if f := strings.ToLower(params["form"]); f != "" && (d.Form == nil || strings.ToLower(*d.Form) != f) {
		return false
	}
	if params["low_stock"] == "true" && !d.LowStock() {
		return false
	}
	return true
}

// StockAdjustment is the body of POST /pharmacy/drugs/:id/stock. Delta is
// added to the current stock; negative values remove units.
type StockAdjustment struct {
	Delta  int    `json:"delta"`
	Reason string `json:"reason"`
}

// Dispensation records one prescription handed out by the pharmacy.
type Dispensation struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	PrescriptionID uuid.UUID       `db:"prescription_id" json:"prescription_id"`
	DispensedBy    *string         `db:"dispensed_by" json:"dispensed_by,omitempty"`
	TotalAmount    float64         `db:"total_amount" json:"total_amount"`
	Lines          []DispensedLine `json:"lines,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}

// DispensedLine is a prescription item as it left the shelf.
type DispensedLine struct {
	DrugID    *uuid.UUID `json:"drug_id,omitempty"`
	DrugName  string     `json:"drug_name"`
	Quantity  int        `json:"quantity"`
	UnitPrice float64    `json:"unit_price"`
	Amount    float64    `json:"amount"`
	Remaining *int       `json:"stock_remaining,omitempty"`
}

func toCents(v float64) int64 { return int64(math.Round(v * 100)) }

func fromCents(c int64) float64 { return float64(c) / 100 }
