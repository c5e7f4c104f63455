package blocking

import (
	"errors"
	"fmt"
)

// RemediationMessage is shown when a request appears to be regionally blocked
const RemediationMessage = "The catalog API looks blocked on this network. Check your network settings or try using a VPN."

// RegionalBlockError tags a terminal failure whose pattern matched the
// blocking heuristic
type RegionalBlockError struct {
	Err     error
	Message string
}

func (e *RegionalBlockError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = RemediationMessage
	}
	if e.Err == nil {
		return fmt.Sprintf("regional block suspected: %s", msg)
	}
	return fmt.Sprintf("regional block suspected: %s: %v", msg, e.Err)
}

func (e *RegionalBlockError) Unwrap() error {
	return e.Err
}

// Tag wraps err as a RegionalBlockError carrying the remediation message
func Tag(err error) error {
	if err == nil || IsRegionalBlock(err) {
		return err
	}
	return &RegionalBlockError{Err: err, Message: RemediationMessage}
}

// IsRegionalBlock reports whether err carries the regional block tag
func IsRegionalBlock(err error) bool {
	var blockErr *RegionalBlockError
	return errors.As(err, &blockErr)
}

// HelpMessage returns step-by-step advice for users on an interfering network
func HelpMessage() string {
	return `If the catalog keeps failing to load on your network:

1. Change DNS settings
   - Set DNS 1: 8.8.8.8
   - Set DNS 2: 8.8.4.4 (or 1.1.1.1 / 1.0.0.1)

2. Try mobile data
   - Switch from WiFi to mobile data, or the other way round

3. Use a VPN
   - A free VPN such as Cloudflare WARP can bypass ISP restrictions

4. Clear cached data
   - Clear browser cache and cookies, then restart the browser

5. Try another network
   - A hotspot from another device often works`
}

// RecommendedDNS lists resolvers that avoid ISP-level DNS interference
var RecommendedDNS = []string{
	"8.8.8.8",
	"8.8.4.4",
	"1.1.1.1",
	"1.0.0.1",
	"208.67.222.222",
	"208.67.220.220",
}
