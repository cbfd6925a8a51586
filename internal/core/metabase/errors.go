// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package metabase

import "github.com/forgebase/forge/internal/platform/apperr"

func errProtectedModel(name string) error {
	return apperr.Forbidden("MODEL_PROTECTED", "\""+name+"\" is a protected registry name and cannot be modified")
}

func errSchemaNotFound(name string) error {
	return apperr.SchemaNotFound(name)
}

func errRequiresSudo(name string) error {
	return apperr.RequiresSudo(name)
}

func errNotImplemented(op string) error {
	return apperr.Unprocessable("NOT_IMPLEMENTED", op+" is reserved and not implemented in this revision")
}
