package middleware

import (
	"context"
	"log"
	"net/http"

	"github.com/fidelize/gateway/internal/tenant"
)

// TenantMiddleware resolves the request hostname to the tenant schema and
// injects it into the request context. Requests from hostnames no tenant
// claims are refused outright.
func TenantMiddleware(resolver *tenant.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			schema, err := resolver.Resolve(r.Host)
			if err != nil {
				log.Printf("[Tenant] unresolved host %q: %v", r.Host, err)
				http.Error(w, "Unknown tenant", http.StatusMisdirectedRequest)
				return
			}

			ctx := context.WithValue(r.Context(), "schema", schema)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SchemaFromContext pulls the schema resolved by TenantMiddleware.
func SchemaFromContext(ctx context.Context) (string, bool) {
	schema, ok := ctx.Value("schema").(string)
	return schema, ok
}
