package pdftest

import (
	"bytes"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/stretchr/testify/require"
)

func TestEncrypt_FormFixtures(t *testing.T) {
	fixtures := map[string][]byte{
		"signature scenario": SignatureScenario(),
		"simple":             Simple("one", "two"),
	}

	for name, data := range fixtures {
		t.Run(name, func(t *testing.T) {
			locked, err := Encrypt(data, "user", "owner")
			require.NoError(t, err)

			conf := model.NewDefaultConfiguration()
			conf.ValidationMode = model.ValidationRelaxed
			conf.UserPW = "user"
			ctx, err := api.ReadContext(bytes.NewReader(locked), conf)
			require.NoError(t, err)
			require.NotNil(t, ctx.Encrypt)
		})
	}
}
