package badger

// Key layout
//
//	fo:<id>                          folder record (JSON)
//	fc:<owner>:<parent|root>:<id>    folder child index
//	fw:<owner>:<id>                  folder owner index
//	fs:<token>                       folder share index -> id
//	fi:<id>                          file record (JSON)
//	ff:<folderID>:<id>               files-by-folder index
//	iw:<owner>:<id>                  file owner index
//	is:<token>                       file share index -> id
//
// Index keys are written and removed in the same transaction as their record.

const rootParent = "root"

func keyFolder(id string) []byte { return []byte("fo:" + id) }

func prefixFolderChildren(ownerID string, parentID *string) []byte {
	parent := rootParent
	if parentID != nil {
		parent = *parentID
	}
	return []byte("fc:" + ownerID + ":" + parent + ":")
}

func keyFolderChild(ownerID string, parentID *string, id string) []byte {
	return append(prefixFolderChildren(ownerID, parentID), id...)
}

func prefixFolderOwner(ownerID string) []byte { return []byte("fw:" + ownerID + ":") }

func keyFolderOwner(ownerID, id string) []byte { return append(prefixFolderOwner(ownerID), id...) }

func keyFolderShare(token string) []byte { return []byte("fs:" + token) }

func keyFile(id string) []byte { return []byte("fi:" + id) }

func prefixFolderFiles(folderID string) []byte { return []byte("ff:" + folderID + ":") }

func keyFolderFile(folderID, id string) []byte { return append(prefixFolderFiles(folderID), id...) }

func prefixFileOwner(ownerID string) []byte { return []byte("iw:" + ownerID + ":") }

func keyFileOwner(ownerID, id string) []byte { return append(prefixFileOwner(ownerID), id...) }

func keyFileShare(token string) []byte { return []byte("is:" + token) }
