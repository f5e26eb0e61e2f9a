// Package entitlement decides which users receive a device's alerts.
//
// Entitlement follows ownership and sharing: the controller's owner and
// every member of the controller's devices are recipients, provided the
// account is active and carries a push token. The package is read-only
// over the account schema; account and sharing management live in the
// mobile backend, which shares this database.
package entitlement
