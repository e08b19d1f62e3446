// Package seed loads condominiums, units and suppliers from a YAML file.
package seed

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Dan9191/condo-service/internal/models"
	"gopkg.in/yaml.v3"
)

// File is the layout of a seed file:
//
//	condominiums:
//	  - name: Torre Azul
//	    currency: DOP
//	    manual_balance: 50000
//	    units:
//	      - unit_number: A-101
//	        owner: {name: Ana Pérez, email: ana@example.com}
//	        fees: {monthly_fee: 3500}
//	    suppliers:
//	      - name: Limpieza Total
//	        rnc: "101000001"
type File struct {
	Condominiums []Condominium `yaml:"condominiums"`
}

type Condominium struct {
	models.CondominiumParams `yaml:",inline"`
	Units                    []models.UnitParams     `yaml:"units"`
	Suppliers                []models.SupplierParams `yaml:"suppliers"`
}

// Load decodes a seed file, rejecting unknown keys
func Load(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return &f, nil
}

// Service is what Apply needs to create records
type Service interface {
	CondominiumIDs(ctx context.Context) ([]string, error)
	GetCondominium(ctx context.Context, id string) (*models.Condominium, error)
	CreateCondominium(ctx context.Context, params models.CondominiumParams) (*models.Condominium, error)
	CreateUnit(ctx context.Context, condoID string, params models.UnitParams) (*models.Unit, error)
	CreateSupplier(ctx context.Context, condoID string, params models.SupplierParams) (*models.Supplier, error)
}

type Result struct {
	Condominiums int
	Skipped      int
	Units        int
	Suppliers    int
}

// Apply creates what the file describes. A condominium whose name already
// exists is skipped together with its units and suppliers, so a file can be
// applied twice.
func Apply(ctx context.Context, svc Service, f *File) (Result, error) {
	var res Result
	existing, err := existingNames(ctx, svc)
	if err != nil {
		return res, err
	}

	for _, c := range f.Condominiums {
		key := strings.ToLower(strings.TrimSpace(c.Name))
		if existing[key] {
			res.Skipped++
			continue
		}
		condo, err := svc.CreateCondominium(ctx, c.CondominiumParams)
		if err != nil {
			return res, fmt.Errorf("condominium %q: %w", c.Name, err)
		}
		existing[key] = true
		res.Condominiums++

		for _, u := range c.Units {
			if _, err := svc.CreateUnit(ctx, condo.ID, u); err != nil {
				return res, fmt.Errorf("condominium %q unit %q: %w", c.Name, u.UnitNumber, err)
			}
			res.Units++
		}
		for _, s := range c.Suppliers {
			if _, err := svc.CreateSupplier(ctx, condo.ID, s); err != nil {
				return res, fmt.Errorf("condominium %q supplier %q: %w", c.Name, s.Name, err)
			}
			res.Suppliers++
		}
	}
	return res, nil
}

func existingNames(ctx context.Context, svc Service) (map[string]bool, error) {
	ids, err := svc.CondominiumIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list condominiums: %w", err)
	}
	names := make(map[string]bool, len(ids))
	for _, id := range ids {
		c, err := svc.GetCondominium(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to get condominium %s: %w", id, err)
		}
		names[strings.ToLower(strings.TrimSpace(c.Name))] = true
	}
	return names, nil
}
