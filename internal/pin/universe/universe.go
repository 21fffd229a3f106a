// Package universe produces the closed set of every possible PIN.
package universe

import (
	"fmt"

	"pinpool/internal/pin/models"
)

// Size is the number of distinct 4-digit codes.
const Size = 10000

// Generate returns "0000".."9999" in ascending order, all Unallocated and
// without IDs. The store assigns IDs on insert.
func Generate() []*models.PIN {
	pins := make([]*models.PIN, Size)
	for i := range Size {
		pins[i] = &models.PIN{
			Code:  models.Code(fmt.Sprintf("%04d", i)),
			State: models.StateUnallocated,
		}
	}
	return pins
}
