package tetris

// Linear congruential generator constants, as used by glibc's rand.
const (
	lcgA = 1103515245
	lcgC = 12345
	lcgM = 1 << 31
)

// RNG is a seeded pseudo-random sequence used to pick the next tetromino.
// It is a value: Next returns a new generator and leaves the receiver as is,
// so any state can be replayed from its seed.
type RNG struct {
	Seed int64 `json:"seed"`
}

func NewRNG(seed int64) RNG {
	return RNG{Seed: seed}
}

// Hash returns (a*seed + c) mod 2^31.
func (r RNG) Hash() int64 {
	// m divides 2^64, so wrapping uint64 arithmetic keeps the exact residue.
	return int64((lcgA*uint64(r.Seed) + lcgC) % lcgM)
}

// Scale maps the hash to a catalog index in [0, 6].
func (r RNG) Scale() int {
	return int(r.Hash() % int64(len(Shapes)))
}

// Next returns the generator seeded with the current hash.
func (r RNG) Next() RNG {
	return RNG{Seed: r.Hash()}
}
