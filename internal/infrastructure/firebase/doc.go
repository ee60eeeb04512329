// Package firebase initialises the Firebase Admin SDK app and hands out the
// Realtime Database and Cloud Messaging clients built from it.
//
// Credentials come from the configured service account file, or from
// application default credentials when none is set (Cloud Functions, Cloud
// Run, GOOGLE_APPLICATION_CREDENTIALS).
package firebase
