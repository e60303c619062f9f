// Package domain contains the core business entities for tableqa.
// These types are pure data with no infrastructure dependencies and are
// shared between services and adapters.
package domain
