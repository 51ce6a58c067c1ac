package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/okian/swing/internal/domain/model"
)

// ContentHash is the hex SHA-256 of the canonical JSON encoding of moments.
// Struct fields encode in declaration order, so equal moment lists hash equally.
func ContentHash(moments []model.Moment) (string, error) {
	if moments == nil {
		moments = []model.Moment{}
	}
	canonical, err := json.Marshal(moments)
	if err != nil {
		return "", fmt.Errorf("encoding moments: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
