// Package storage manages the files a scrape run produces.
//
// Downloads are written to "<name>.part" and renamed once complete, so an
// existing file under the final name is always a finished download and can
// be skipped on the next run. The URL list is replaced atomically the same
// way.
//
//	m := storage.NewManager("downloads/1234567890")
//	if err := m.EnsureDir(); err != nil {
//	    return err
//	}
//	name, err := storage.FileNameFromURL(videoURL)
//	if m.Exists(name) {
//	    return nil // already downloaded
//	}
//	f, err := m.Create(name)
//	defer f.Abort()
//	io.Copy(f, body)
//	return f.Commit()
package storage
