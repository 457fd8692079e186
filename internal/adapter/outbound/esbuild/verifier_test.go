package esbuild

import (
	"context"
	"nextdynamic/internal/domain/errors/domain"
	"nextdynamic/internal/domain/valueobject"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifier_Verify(t *testing.T) {
	tests := []struct {
		name    string
		dialect valueobject.SourceDialect
		source  string
		wantErr error
	}{
		{
			name:    "transformed javascript",
			dialect: valueobject.DialectJavaScript,
			source: `import { __turbopack_module_id__ as id } from "./a" with { "turbopack-transition": "next-dynamic", "turbopack-chunking-type": "none" };
import dynamic from 'next/dynamic'
const A = dynamic(() => import('./a', { with: { "turbopack-transition": "next-dynamic" } }), { loadableGenerated: { modules: [id] } })
export default () => <A />
`,
		},
		{
			name:    "typescript",
			dialect: valueobject.DialectTypeScript,
			source:  "const n: number = 1\nexport default n\n",
		},
		{
			name:    "tsx",
			dialect: valueobject.DialectTSX,
			source:  "export const C = (p: { a: string }) => <div>{p.a}</div>\n",
		},
		{
			name:    "syntax error",
			dialect: valueobject.DialectJavaScript,
			source:  "const A = dynamic(() => import('./a'), { loadableGenerated: { modules: [id] }\n",
			wantErr: domain.ErrVerificationFailed,
		},
		{
			name:    "unknown dialect",
			dialect: valueobject.SourceDialect("coffee"),
			source:  "1",
			wantErr: domain.ErrUnsupportedFile,
		},
	}

	v := NewVerifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Verify(context.Background(), "page.js", tt.dialect, []byte(tt.source))
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestVerifier_VerifyCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewVerifier().Verify(ctx, "page.js", valueobject.DialectJavaScript, []byte("1"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestVerifier_ErrorMentionsPosition(t *testing.T) {
	err := NewVerifier().Verify(context.Background(), "page.js", valueobject.DialectJavaScript, []byte("let = ;\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "page.js: 1:")
}
