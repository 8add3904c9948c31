package secretshare

// The secrets lifecycle is a read-modify-write over the whole user
// document: the record is re-read, mutated in memory and rewritten.
// There is no lock or version token around the cycle, so two
// concurrent writes from sessions of the same user interleave with
// last-write-wins at the store.

// SharedSecret is one entry of the public listing.
type SharedSecret struct {
	Text        string
	DisplayName string
	Picture     string
}

// AppendSecret appends the submitted text to the user's secrets and
// persists the record. The text is stored as-is, with no length or
// content validation.
func AppendSecret(userStore UserStore, userID, secret string) error {
	user, err := userStore.GetUserById(userID)
	if err != nil {
		return err
	}
	user.Secrets = append(user.Secrets, secret)
	return userStore.SaveUser(user)
}

// DeleteSecretAt removes the element at the client-submitted index,
// preserving the order of the rest. An out-of-range index is a no-op
// rather than a truncation or an error.
func DeleteSecretAt(userStore UserStore, userID string, index int) error {
	user, err := userStore.GetUserById(userID)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(user.Secrets) {
		return nil
	}
	user.Secrets = append(user.Secrets[:index], user.Secrets[index+1:]...)
	return userStore.SaveUser(user)
}

// ListSharedSecrets flattens every non-empty secrets list for the
// public listing, in store order.
func ListSharedSecrets(userStore UserStore) ([]SharedSecret, error) {
	users, err := userStore.ListUsersWithSecrets()
	if err != nil {
		return nil, err
	}

	var shared []SharedSecret
	for _, user := range users {
		for _, text := range user.Secrets {
			shared = append(shared, SharedSecret{
				Text:        text,
				DisplayName: user.DisplayLabel(),
				Picture:     user.Avatar(),
			})
		}
	}
	return shared, nil
}
