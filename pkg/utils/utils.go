package utils

import (
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
)

const LamportsPerSOL = 1_000_000_000

func TruncateString(str string, num int) string {
	if len(str) <= num {
		return str
	}
	if num <= 3 {
		return str[:num]
	}
	return str[0:num-3] + "..."
}

// ShortAddress abbreviates a base58 public key to its first and last n characters.
func ShortAddress(addr string, n int) string {
	if n <= 0 || len(addr) <= 2*n+3 {
		return addr
	}
	return addr[:n] + "..." + addr[len(addr)-n:]
}

// IsValidAddress reports whether s decodes to a 32-byte public key.
func IsValidAddress(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	b, err := base58.Decode(s)
	return err == nil && len(b) == 32
}

func AddCommas(s string) string {
	if len(s) == 0 {
		return s
	}
	parts := strings.Split(s, ".")
	integerPart := parts[0]
	sign := ""
	if strings.HasPrefix(integerPart, "-") {
		sign = "-"
		integerPart = integerPart[1:]
	}

	n := len(integerPart)
	if n <= 3 {
		return s
	}

	var result strings.Builder
	result.WriteString(sign)
	remainder := n % 3
	if remainder > 0 {
		result.WriteString(integerPart[:remainder])
		result.WriteString(",")
	}
	for i := remainder; i < n; i += 3 {
		if i > remainder {
			result.WriteString(",")
		}
		result.WriteString(integerPart[i : i+3])
	}

	if len(parts) > 1 {
		result.WriteString(".")
		result.WriteString(parts[1])
	}
	return result.String()
}

func FormatFloat(f float64, decimals int) string {
	return AddCommas(fmt.Sprintf("%.*f", decimals, f))
}

// FormatSOL renders a lamport balance in SOL without losing precision.
func FormatSOL(lamports uint64) string {
	s := fmt.Sprintf("%d.%09d", lamports/LamportsPerSOL, lamports%LamportsPerSOL)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	return AddCommas(s)
}

// FormatBytes renders a byte count with a binary unit suffix.
func FormatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
