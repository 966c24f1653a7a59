package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLineField(t *testing.T) {
	tests := []struct {
		name     string
		id       uint64
		variants map[string]string
		want     string
	}{
		{name: "无规格", id: 42, variants: nil, want: "42"},
		{name: "单规格", id: 42, variants: map[string]string{"size": "M"}, want: "42|size=M"},
		{
			name:     "多规格按键名排序",
			id:       7,
			variants: map[string]string{"size": "L", "color": "red"},
			want:     "7|color=red,size=L",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, lineField(tt.id, tt.variants))
		})
	}
}

func TestLineFieldDeterministic(t *testing.T) {
	// 同一组规格不论插入顺序，字段名必须一致
	a := lineField(1, map[string]string{"a": "1", "b": "2", "c": "3"})
	b := lineField(1, map[string]string{"c": "3", "a": "1", "b": "2"})
	assert.Equal(t, a, b)
}

func TestCartOwnerKey(t *testing.T) {
	user := CartOwner{UserID: 9}
	guest := CartOwner{Session: "3f2c"}

	assert.Equal(t, "cart:user:9", user.Key())
	assert.Equal(t, "cart:guest:3f2c", guest.Key())
	assert.False(t, user.IsGuest())
	assert.True(t, guest.IsGuest())
}
