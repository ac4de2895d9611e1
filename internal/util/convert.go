// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import "strconv"

// FloatToStringPrec formats a float64 with a fixed number of decimal
// places. Telemetry tables use it so coordinates and measurements line
// up column by column.
func FloatToStringPrec(f float64, prec int) string {
	return strconv.FormatFloat(f, 'f', prec, 64)
}
