// Package service groups application logic by domain areas to keep maintenance localized.
//
// Domain files:
// - professionals: staff records and CSV import
// - projects: project lifecycle and cloning
// - allocations: staffing lines and weekly hours
// - offers: reusable staffing templates
// - pricing: timeline, pricing summary and billing table
// - calendar: week rows kept in line with the business calendar
package service
