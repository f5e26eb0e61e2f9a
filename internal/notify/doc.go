// Package notify delivers alerts to users' phones through Firebase
// Cloud Messaging.
//
// One alert becomes one multicast message across all recipient tokens.
// There is no retry layer and no queue: an alert that fails to send is
// logged and gone, which is the intended trade for a safety path that
// must never amplify into a notification storm.
package notify
