// Package migrations registers the storefront schema with pkg/migration.
// Import it for side effects wherever migrations must be runnable.
package migrations
