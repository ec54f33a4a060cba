package services

import (
	"context"
	"fmt"

	"github.com/gosimple/slug"

	"storefront/internal/utils"
)

const maxSlugCollisions = 20

// uniqueSlug turns title into a URL slug that exists reports as free,
// appending -2, -3, ... on collision and a random suffix as a last resort.
func uniqueSlug(ctx context.Context, title string, exists func(context.Context, string) (bool, error)) (string, error) {
	base := slug.Make(title)
	if base == "" {
		return "", fmt.Errorf("%w: title produces an empty slug", ErrInvalidInput)
	}

	candidate := base
	for i := 2; i <= maxSlugCollisions; i++ {
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}

	suffix, err := utils.GenerateSecureOTP(6)
	if err != nil {
		return "", err
	}
	return base + "-" + suffix, nil
}
