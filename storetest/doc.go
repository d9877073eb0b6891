// Package storetest provides test doubles for the netstore adapter: an
// in-memory FakeClient with scripted failures and call counting for store
// unit tests, and an in-process HTTP resource server for exercising the
// REST client end to end, including bearer-token auth and failure
// injection.
package storetest
