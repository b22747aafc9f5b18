package tool

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	out json.RawMessage
	err error
}

func (f *fakeClient) Call(context.Context, Name, any) (json.RawMessage, error) {
	return f.out, f.err
}

func TestCallTyped_DecodesOutput(t *testing.T) {
	f := &fakeClient{out: json.RawMessage(`{"chemistries":[{"chem_system":"Li-Fe-P-O"}]}`)}
	out, err := CallTyped[SuggestChemistriesOutput](context.Background(), f, SuggestChemistries, SuggestChemistriesInput{})

	require.NoError(t, err)
	require.Len(t, out.Chemistries, 1)
	assert.Equal(t, "Li-Fe-P-O", out.Chemistries[0].ChemSystem)
}

func TestCallTyped_PropagatesClientError(t *testing.T) {
	wantErr := errors.New("boom")
	f := &fakeClient{err: wantErr}

	_, err := CallTyped[SuggestChemistriesOutput](context.Background(), f, SuggestChemistries, SuggestChemistriesInput{})
	assert.ErrorIs(t, err, wantErr)
}

func TestCallTyped_DecodeErrorOnMalformedOutput(t *testing.T) {
	f := &fakeClient{out: json.RawMessage(`not json`)}

	_, err := CallTyped[SuggestChemistriesOutput](context.Background(), f, SuggestChemistries, SuggestChemistriesInput{})
	assert.Error(t, err)
}
