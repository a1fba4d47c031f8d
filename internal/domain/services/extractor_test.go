package services_test

import (
	"reflect"
	"testing"

	"phishguard-api/internal/domain/services"
)

func TestExtractURLs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "no urls",
			text: "just some plain text",
			want: nil,
		},
		{
			name: "empty input",
			text: "",
			want: nil,
		},
		{
			name: "single http url",
			text: "visit http://example.com today",
			want: []string{"http://example.com"},
		},
		{
			name: "single https url",
			text: "https://secure.example.com/login",
			want: []string{"https://secure.example.com/login"},
		},
		{
			name: "comma terminates a url",
			text: "see http://a.com, and http://b.com",
			want: []string{"http://a.com", "http://b.com"},
		},
		{
			name: "first occurrence order preserved",
			text: "http://z.com then http://a.com then http://m.com",
			want: []string{"http://z.com", "http://a.com", "http://m.com"},
		},
		{
			name: "duplicates kept",
			text: "http://a.com again http://a.com",
			want: []string{"http://a.com", "http://a.com"},
		},
		{
			name: "url with query and path",
			text: "click https://example.com/verify?id=123&token=abc now",
			want: []string{"https://example.com/verify?id=123&token=abc"},
		},
		{
			name: "bare domain without scheme ignored",
			text: "go to example.com or www.example.com",
			want: nil,
		},
		{
			name: "ftp scheme ignored",
			text: "ftp://files.example.com",
			want: nil,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := services.ExtractURLs(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractURLs(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}
