// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package database

import (
	"context"

	"github.com/forgebase/forge/internal/platform/constants"
	"github.com/forgebase/forge/internal/platform/sec"
)

// Upsert splits batch by presence of an "id" field: id-less records go
// through create, the rest through update. The merged result preserves the
// caller's original ordering (§4.5, "Upsert").
func (s *Service) Upsert(ctx context.Context, claims *sec.AuthClaims, model string, batch []Record) ([]Record, error) {
	var toCreate, toUpdate []Record
	slot := make([]int, len(batch)) // 0 = create, 1 = update
	createIdx := make([]int, 0, len(batch))
	updateIdx := make([]int, 0, len(batch))

	for i, rec := range batch {
		if id, ok := rec[constants.ColumnID]; !ok || id == "" {
			slot[i] = 0
			createIdx = append(createIdx, i)
			toCreate = append(toCreate, rec)
		} else {
			slot[i] = 1
			updateIdx = append(updateIdx, i)
			toUpdate = append(toUpdate, rec)
		}
	}

	var created, updated []Record
	var err error
	if len(toCreate) > 0 {
		created, err = s.CreateAll(ctx, claims, model, toCreate)
		if err != nil {
			return nil, err
		}
	}
	if len(toUpdate) > 0 {
		updated, err = s.All(ctx, claims, model, constants.OpUpdate, toUpdate)
		if err != nil {
			return nil, err
		}
	}

	out := make([]Record, len(batch))
	for j, i := range createIdx {
		if j < len(created) {
			out[i] = created[j]
		}
	}
	for j, i := range updateIdx {
		if j < len(updated) {
			out[i] = updated[j]
		}
	}
	return out, nil
}
