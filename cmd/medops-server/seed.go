package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medops/medops/internal/domain/equipment"
	"github.com/medops/medops/internal/domain/technician"
)

func strPtr(s string) *string { return &s }

// seedDemoData inserts a small fleet of equipment and a technician roster so a
// fresh environment has something to schedule against.
func seedDemoData(ctx context.Context, pool *pgxpool.Pool) error {
	equipmentRepo := equipment.NewRepoPG(pool)
	technicianRepo := technician.NewRepoPG(pool)

	fleet := []*equipment.Equipment{
		{Code: "EQ-1001", Name: "Drager Evita V600", EquipmentType: "Ventilator", Location: strPtr("ICU Ward 2"), Status: equipment.StatusOperational},
		{Code: "EQ-1002", Name: "Fresenius 5008S", EquipmentType: "Dialysis Machine", Location: strPtr("Dialysis Unit"), Status: equipment.StatusOperational},
		{Code: "EQ-1003", Name: "Siemens Ysio Max", EquipmentType: "X-Ray Machine", Location: strPtr("Radiology"), Status: equipment.StatusOperational},
		{Code: "EQ-1004", Name: "Philips IntelliVue MX450", EquipmentType: "Patient Monitor", Location: strPtr("ICU Ward 1"), Status: equipment.StatusOperational},
		{Code: "EQ-1005", Name: "B. Braun Infusomat Space", EquipmentType: "Infusion Pump", Location: strPtr("General Ward 3"), Status: equipment.StatusOperational},
		{Code: "EQ-1006", Name: "GE Signa Explorer 1.5T", EquipmentType: "MRI Scanner", Location: strPtr("Imaging Center"), Status: equipment.StatusOperational},
	}
	for _, e := range fleet {
		if err := equipmentRepo.Create(ctx, e); err != nil {
			return fmt.Errorf("seed equipment %s: %w", e.Code, err)
		}
		fmt.Printf("equipment %-8s %s\n", e.Code, e.Name)
	}

	roster := []*technician.Technician{
		{
			FullName:          "Asha Perera",
			Email:             "asha.perera@example.org",
			Skills:            []string{"Ventilator", "Patient Monitor", "general repair"},
			Specialization:    strPtr("Respiratory equipment"),
			Employed:          true,
			Available:         true,
			ShiftStart:        "08:00",
			ShiftEnd:          "17:00",
			MaxScheduledTasks: 3,
			MaxOpenRequests:   5,
		},
		{
			FullName:          "Ruwan Silva",
			Email:             "ruwan.silva@example.org",
			Skills:            []string{"Dialysis Machine", "Infusion Pump"},
			Specialization:    strPtr("Renal care devices"),
			Employed:          true,
			Available:         true,
			ShiftStart:        "09:00",
			ShiftEnd:          "18:00",
			MaxScheduledTasks: 3,
			MaxOpenRequests:   5,
		},
		{
			FullName:          "Nadia Fernando",
			Email:             "nadia.fernando@example.org",
			Skills:            []string{"MRI Scanner", "X-Ray Machine"},
			Specialization:    strPtr("Imaging systems"),
			Employed:          true,
			Available:         true,
			ShiftStart:        "07:00",
			ShiftEnd:          "16:00",
			MaxScheduledTasks: 2,
			MaxOpenRequests:   4,
		},
	}
	for _, t := range roster {
		if err := technicianRepo.Create(ctx, t); err != nil {
			return fmt.Errorf("seed technician %s: %w", t.FullName, err)
		}
		fmt.Printf("technician %s\n", t.FullName)
	}

	return nil
}
