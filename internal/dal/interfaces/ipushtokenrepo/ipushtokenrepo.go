package ipushtokenrepo

import "context"

// IPushTokenRepository lists registered device tokens. Registration itself is
// owned by the mobile app backend; this side only reads.
type IPushTokenRepository interface {
	List(ctx context.Context) ([]string, error)
}
