// Package consumer runs sarama consumer groups, used by the gateway for
// registry reload messages.
package consumer

import "context"

// Consumer blocks in Start until ctx is cancelled or consumption fails
// for good.
type Consumer interface {
	Start(ctx context.Context) error
}
