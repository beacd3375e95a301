package params

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringParameter(t *testing.T) {
	p := &StringParameter{Spec: Spec{Ident: "name", Name: "Name"}}
	assert.False(t, p.HasValue())
	require.NoError(t, p.SetValue("hello"))
	assert.True(t, p.HasValue())
	assert.Equal(t, "hello", p.Value())
}

func TestBoolParameterCoercion(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{raw: "true", want: "true"},
		{raw: "yes", want: "true"},
		{raw: "on", want: "true"},
		{raw: "1", want: "true"},
		{raw: "false", want: "false"},
		{raw: "no", want: "false"},
		{raw: "off", want: "false"},
		{raw: "0", want: "false"},
		{raw: "maybe", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			p := &BoolParameter{Spec: Spec{Ident: "flag"}}
			err := p.SetValue(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Value())
		})
	}
}

func TestIntParameterRange(t *testing.T) {
	min, max := 1, 10
	p := &IntParameter{Spec: Spec{Ident: "count"}, Min: &min, Max: &max}

	require.NoError(t, p.SetValue("5"))
	assert.Equal(t, "5", p.Value())

	assert.Error(t, p.SetValue("0"))
	assert.Error(t, p.SetValue("11"))
	assert.Error(t, p.SetValue("five"))
}

func TestFloatParameter(t *testing.T) {
	p := &FloatParameter{Spec: Spec{Ident: "threshold"}}
	require.NoError(t, p.SetValue("0.75"))
	assert.Equal(t, "0.75", p.Value())
	assert.Error(t, p.SetValue("high"))
}

func TestChoiceParameter(t *testing.T) {
	t.Run("single choice", func(t *testing.T) {
		p := &ChoiceParameter{Spec: Spec{Ident: "lang"}, Choices: []string{"en", "fr"}}
		require.NoError(t, p.SetValue("en"))
		assert.Equal(t, "en", p.Value())
		assert.Error(t, p.SetValue("de"))
	})

	t.Run("multi choice", func(t *testing.T) {
		p := &ChoiceParameter{Spec: Spec{Ident: "lang"}, Choices: []string{"en", "fr", "nl"}, Multi: true}
		require.NoError(t, p.SetValue("en, nl"))
		assert.Equal(t, "en,nl", p.Value())
		assert.Error(t, p.SetValue("en,de"))
	})
}

func TestAccessControl(t *testing.T) {
	t.Run("open by default", func(t *testing.T) {
		p := &StringParameter{Spec: Spec{Ident: "x"}}
		assert.True(t, p.AccessibleBy("anyone"))
		assert.True(t, p.AccessibleBy(""))
	})

	t.Run("allow list restricts", func(t *testing.T) {
		p := &StringParameter{Spec: Spec{Ident: "x", AllowUsers: []string{"alice"}}}
		assert.True(t, p.AccessibleBy("alice"))
		assert.False(t, p.AccessibleBy("bob"))
	})

	t.Run("deny wins over allow", func(t *testing.T) {
		p := &StringParameter{Spec: Spec{Ident: "x", AllowUsers: []string{"alice"}, DenyUsers: []string{"alice"}}}
		assert.False(t, p.AccessibleBy("alice"))
	})
}

func TestValuesSkipsUnset(t *testing.T) {
	set := &StringParameter{Spec: Spec{Ident: "a"}}
	require.NoError(t, set.SetValue("1"))
	unset := &StringParameter{Spec: Spec{Ident: "b"}}

	values := Values([]Parameter{set, unset})
	assert.Equal(t, map[string]string{"a": "1"}, values)
}

func TestCopyAllIsIndependent(t *testing.T) {
	original := &ChoiceParameter{
		Spec:    Spec{Ident: "lang", ForbidIDs: []string{"other"}},
		Choices: []string{"en", "fr"},
	}

	copies := CopyAll([]Parameter{original})
	require.Len(t, copies, 1)
	require.NoError(t, copies[0].SetValue("en"))
	copies[0].SetError("boom")

	// The original specification stays pristine.
	assert.False(t, original.HasValue())
	assert.Empty(t, original.Error())
}
