package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/slok/pkgmcp/internal/model"
)

func TestRequestValidate(t *testing.T) {
	tests := map[string]struct {
		validate func() error
		expErr   bool
	}{
		"A valid install request should not fail": {
			validate: func() error { return model.InstallRequest{Package: "curl"}.Validate() },
			expErr:   false,
		},

		"An install request without package should fail": {
			validate: func() error { return model.InstallRequest{Repository: "https://example.org/repo"}.Validate() },
			expErr:   true,
		},

		"A valid versioned install request should not fail": {
			validate: func() error {
				return model.VersionedInstallRequest{Package: "curl", Version: "7.88.1-r1"}.Validate()
			},
			expErr: false,
		},

		"A versioned install request without package should fail": {
			validate: func() error { return model.VersionedInstallRequest{Version: "7.88.1-r1"}.Validate() },
			expErr:   true,
		},

		"A versioned install request without version should fail": {
			validate: func() error { return model.VersionedInstallRequest{Package: "curl"}.Validate() },
			expErr:   true,
		},

		"A valid search request should not fail": {
			validate: func() error { return model.SearchRequest{Query: "python3"}.Validate() },
			expErr:   false,
		},

		"A search request without query should fail": {
			validate: func() error { return model.SearchRequest{}.Validate() },
			expErr:   true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			err := test.validate()

			if test.expErr {
				assert.ErrorIs(t, err, model.ErrNotValid)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidCommandInput(t *testing.T) {
	tests := map[string]struct {
		input    string
		extra    []rune
		expValid bool
	}{
		"A plain package name should be valid": {
			input:    "curl",
			expValid: true,
		},

		"A version with dots, hyphens and release suffix should be valid": {
			input:    "7.88.1-r1",
			expValid: true,
		},

		"Underscores and plus signs should be valid": {
			input:    "g++_exp",
			expValid: true,
		},

		"An empty string should not be valid": {
			input:    "",
			expValid: false,
		},

		"A semicolon should not be valid": {
			input:    "curl;rm -rf /",
			expValid: false,
		},

		"A pipe should not be valid": {
			input:    "curl|cat",
			expValid: false,
		},

		"A space should not be valid": {
			input:    "curl extra",
			expValid: false,
		},

		"A shell substitution should not be valid": {
			input:    "$(reboot)",
			expValid: false,
		},

		"A colon should not be valid without the extra rune": {
			input:    "libc6:amd64",
			expValid: false,
		},

		"A colon should be valid with the extra rune": {
			input:    "libc6:amd64",
			extra:    []rune{':', '~'},
			expValid: true,
		},

		"A tilde version should be valid with the extra rune": {
			input:    "1.0~beta1",
			extra:    []rune{':', '~'},
			expValid: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			got := model.ValidCommandInput(test.input, test.extra...)

			assert.Equal(t, test.expValid, got)
		})
	}
}
