// Package tenancy manages tenants and their rooms.
//
// A tenant is an organisation whose rooms are shown on kiosk displays.
// Every device, pairing token, and event belongs to exactly one tenant,
// and cross-tenant access is rejected at the repository level by scoping
// queries on tenant_id.
//
// Rooms are the unit that devices pair to and that events are scheduled
// against. Deleting a tenant cascades to its rooms, devices, and events
// through foreign keys.
package tenancy
