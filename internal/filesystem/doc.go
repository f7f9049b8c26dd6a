/*
Package filesystem wraps the file operations used by photo jobs with retries
for stale NFS file handles.

Photo libraries commonly live on NFS. A file that is replaced on the server
while a job holds its handle fails with ESTALE; reopening it usually works.
StatWithRetry and OpenWithRetry retry only that error, with exponential
backoff (50ms, 100ms, 200ms by default). Every other error is returned at
once.

WriteFileAtomic writes through a temporary file and a rename, which keeps
thumbnail and sidecar outputs whole if the process dies mid-write:

	f, err := filesystem.OpenWithRetry(photo.Path, filesystem.DefaultRetryConfig())
	if err != nil {
	    return err
	}
	defer f.Close()

Metrics are recorded through an Observer installed with SetObserver; paths
are labelled by volume through a VolumeResolver.
*/
package filesystem
