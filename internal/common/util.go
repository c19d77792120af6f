package common

// WipeByteArray overwrites buf with zeros. It is used to drop plaintext
// passwords read from the terminal as soon as they are sent.
func WipeByteArray(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
}
