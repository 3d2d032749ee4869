// Package ports selects the local TCP port of a sync endpoint.
//
// Several sibling applications run the same kinds on one device, so each
// one starts from a preferred port derived from its app ID and probes
// upwards until a free port is found.
package ports

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"strconv"

	"golang.org/x/crypto/blake2b"
)

const (
	// DefaultAttempts количество проверяемых портов по умолчанию
	DefaultAttempts = 10
	// Spread ширина диапазона предпочтительных портов над basePort
	Spread = 100
	// Host адрес, на котором проверяются и открываются порты
	Host = "127.0.0.1"
)

// ProbeFunc reports whether the port can be bound right now.
type ProbeFunc func(port int) bool

// NoAvailablePortError is returned when every candidate port is taken.
type NoAvailablePortError struct {
	AppID string
	Start int
	End   int
}

func (e *NoAvailablePortError) Error() string {
	return fmt.Sprintf("no available port for %q in range %d-%d", e.AppID, e.Start, e.End)
}

// IsNoAvailablePort reports whether err is (or wraps) a NoAvailablePortError.
func IsNoAvailablePort(err error) bool {
	var target *NoAvailablePortError
	return errors.As(err, &target)
}

// Allocator picks ports. The zero value probes real sockets with DefaultAttempts.
type Allocator struct {
	Probe    ProbeFunc
	Attempts int
}

// NewAllocator creates an allocator with the given probe ceiling.
func NewAllocator(attempts int) *Allocator {
	return &Allocator{Attempts: attempts}
}

// Hash returns the deterministic 64-bit hash of an app ID: the first 8 bytes
// of BLAKE2b-256, big-endian. It is the same on every platform and process.
func Hash(appID string) uint64 {
	sum := blake2b.Sum256([]byte(appID))
	return binary.BigEndian.Uint64(sum[:8])
}

// Preferred returns basePort + hash(appID) mod Spread.
func Preferred(appID string, basePort int) int {
	return basePort + int(Hash(appID)%Spread)
}

// Candidates returns the ports probed for appID in order.
// Peers use it to find where a sibling application is listening.
func Candidates(appID string, basePort, attempts int) []int {
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	preferred := Preferred(appID, basePort)
	out := make([]int, 0, attempts)
	for i := 0; i < attempts; i++ {
		out = append(out, preferred+i)
	}
	return out
}

// Allocate returns the first free candidate port for appID.
func (a *Allocator) Allocate(appID string, basePort int) (int, error) {
	probe := a.Probe
	if probe == nil {
		probe = ProbeTCP
	}

	candidates := Candidates(appID, basePort, a.Attempts)
	for _, port := range candidates {
		if probe(port) {
			return port, nil
		}
	}

	return 0, &NoAvailablePortError{
		AppID: appID,
		Start: candidates[0],
		End:   candidates[len(candidates)-1],
	}
}

// ProbeTCP opens and immediately closes a listener on the loopback host.
func ProbeTCP(port int) bool {
	ln, err := net.Listen("tcp", net.JoinHostPort(Host, strconv.Itoa(port)))
	if err != nil {
		return false
	}
	_ = ln.Close()
	return true
}
