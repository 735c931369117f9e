package trongrid

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/base58"
)

// TRON mainnet address version byte.
const addressPrefix = 0x41

// DecodeAddress converts a base58check TRON address (T...) into its raw hex
// form (41 + 20 payload bytes, lowercase).
func DecodeAddress(addr string) (string, error) {
	payload, version, err := base58.CheckDecode(addr)
	if err != nil {
		return "", fmt.Errorf("decode address %q: %w", addr, err)
	}
	if version != addressPrefix {
		return "", fmt.Errorf("unexpected address prefix 0x%02x in %q", version, addr)
	}
	if len(payload) != 20 {
		return "", fmt.Errorf("unexpected address length %d in %q", len(payload), addr)
	}

	raw := append([]byte{version}, payload...)
	return hex.EncodeToString(raw), nil
}

// NormalizeHex lowercases a hex address and strips an optional 0x prefix,
// which some explorer responses carry on to_address fields.
func NormalizeHex(addr string) string {
	addr = strings.TrimSpace(addr)
	addr = strings.TrimPrefix(addr, "0x")
	addr = strings.TrimPrefix(addr, "0X")
	return strings.ToLower(addr)
}

// ShortAddr returns a shortened address for display
func ShortAddr(addr string, n int) string {
	if addr == "" {
		return "unknown"
	}
	if len(addr) < n*2+3 {
		return addr
	}
	return addr[:n] + "..." + addr[len(addr)-n:]
}
