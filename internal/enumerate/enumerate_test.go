// SPDX-License-Identifier: Apache-2.0

package enumerate_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/gemaraproj/statement-screener/internal/enumerate"
	rendermock "github.com/gemaraproj/statement-screener/testutils/mocks/render"
)

func TestEncodeQuery(t *testing.T) {
	tests := []struct {
		term string
		want string
	}{
		{term: "budget resolution", want: "budget+resolution"},
		{term: "  budget \t resolution\n", want: "budget+resolution"},
		{term: "a&b=c", want: "a%26b%3Dc"},
		{term: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			assert.Equal(t, tt.want, enumerate.EncodeQuery(tt.term))
		})
	}
}

func TestPageShape_Validate(t *testing.T) {
	require.NoError(t, enumerate.DefaultPageShape().Validate())

	err := enumerate.PageShape{SearchURLTemplate: "https://x/?q={query}", LinkSelector: "a"}.Validate()
	assert.ErrorIs(t, err, enumerate.ErrInvalidTemplate)

	err = enumerate.PageShape{SearchURLTemplate: "https://x/?q={query}&p={page}"}.Validate()
	assert.Error(t, err)
}

func TestEnumerator_SearchURL(t *testing.T) {
	e, err := enumerate.New(enumerate.DefaultPageShape(), nil)
	require.NoError(t, err)

	assert.Equal(t,
		"https://www.scribd.com/search?query=budget+resolution&ct_lang=0&filters=%7B%22new_release%22%3A%223month%22%7D&page=3",
		e.SearchURL("budget resolution", 3))
}

func TestEnumerator_Pages(t *testing.T) {
	shape := enumerate.PageShape{
		SearchURLTemplate: "https://docs.example/search?q={query}&page={page}",
		LinkSelector:      "a.result",
	}
	errBoom := errors.New("markup changed")

	tests := []struct {
		name    string
		page    int
		setup   func(m *rendermock.MockSession)
		want    []string
		wantErr error
	}{
		{
			name: "returns links in page order",
			page: 2,
			setup: func(m *rendermock.MockSession) {
				m.EXPECT().Links(gomock.Any(), "https://docs.example/search?q=budget+resolution&page=2", "a.result").
					Return([]string{"docB", "docA", "docB"}, nil)
			},
			want: []string{"docB", "docA", "docB"},
		},
		{
			name: "empty page is not an error",
			page: 1,
			setup: func(m *rendermock.MockSession) {
				m.EXPECT().Links(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)
			},
			want: []string{},
		},
		{
			name: "link failure propagates",
			page: 1,
			setup: func(m *rendermock.MockSession) {
				m.EXPECT().Links(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errBoom)
			},
			wantErr: errBoom,
		},
		{
			name:    "page zero is rejected without a request",
			page:    0,
			setup:   func(*rendermock.MockSession) {},
			wantErr: enumerate.ErrInvalidPage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			source := rendermock.NewMockSession(ctrl)
			tt.setup(source)

			e, err := enumerate.New(shape, source)
			require.NoError(t, err)

			got, err := e.Pages(context.Background(), "budget resolution", tt.page)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
