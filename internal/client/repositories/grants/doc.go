// Package grants keeps the local record of access grants issued from this
// device.
//
// Only the patient's own device ever sees a grant token after creation, so
// the cache maps grant ids to tokens for revocation and answers "grant
// list" when the server is unreachable. Rows are never deleted; a revoked
// grant keeps its row with revoked=1.
//
// SQLiteRepository works over a dbx.DBTX, so it can run inside a
// transaction started with dbx.WithTx.
package grants
