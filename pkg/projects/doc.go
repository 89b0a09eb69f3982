// Package projects manages the business-plan records users create after onboarding.
//
// A project captures the owner's document quota when it is created (plan BaseDocuments, or -1
// for plans with unlimited documents). Later plan changes do not touch existing projects.
// Validation failures and ownership misses use the billing error kinds so the HTTP layer maps
// them the same way.
package projects
