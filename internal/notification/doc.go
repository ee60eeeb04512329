// Package notification builds push payloads and fans them out to the users
// subscribed to a doorbell.
//
// Each subscriber keeps a token registry at users/{uid}/gcm-ids. Every key is
// a device token except the reserved key "settings", which holds the user's
// preferences:
//
//	{
//	  "fcm-token-1": true,
//	  "settings": {"allowedTypes": ["ONLINE", "OFFLINE"], "receiveNotifications": true}
//	}
//
// The Resolver filters a registry against a notification type; the
// Dispatcher reads every subscriber's registry in parallel, unions the tokens
// and hands them to a push.Transport in a single call.
package notification
