package embedding

import "context"

// Provider converts texts to fixed-length vectors. Implementations must
// return one vector per input, in input order, or an error; never a
// silently padded result.
type Provider interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}
