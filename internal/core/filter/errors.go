// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package filter

import "github.com/forgebase/forge/internal/platform/apperr"

// Stable error codes (§4.2, §7 UNPROCESSABLE).
const (
	CodeUnsupportedOperator  = "FILTER_UNSUPPORTED_OPERATOR"
	CodeBetweenRequiresArray = "FILTER_BETWEEN_REQUIRES_ARRAY"
	CodeInvalidFieldName     = "FILTER_INVALID_FIELD_NAME"
	CodeInvalidOrder         = "FILTER_INVALID_ORDER_DIRECTION"
	CodeInvalidShape         = "FILTER_INVALID_SHAPE"
)

func errUnsupportedOperator(op string) error {
	return apperr.Unprocessable(CodeUnsupportedOperator, "unsupported filter operator: "+op)
}

func errBetweenRequiresArray(field string) error {
	return apperr.Unprocessable(CodeBetweenRequiresArray, "$between on \""+field+"\" requires a 2-element array of non-null bounds")
}

func errInvalidFieldName(field string) error {
	return apperr.Unprocessable(CodeInvalidFieldName, "invalid field name: "+field)
}

func errInvalidOrder(direction string) error {
	return apperr.Unprocessable(CodeInvalidOrder, "invalid order direction: "+direction)
}

func errInvalidShape(message string) error {
	return apperr.Unprocessable(CodeInvalidShape, message)
}
